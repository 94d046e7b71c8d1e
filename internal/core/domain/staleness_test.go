package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNeedsRefetch(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	local := &LocalRecord{SubjectID: 7, ItemCount: 10, LastActivityAt: now}

	tests := []struct {
		name          string
		local         *LocalRecord
		localChildren int
		remote        RemoteSummary
		want          bool
	}{
		{
			name:   "no local record",
			local:  nil,
			remote: RemoteSummary{RemoteID: 7, ItemCount: 1, LastActivityAt: now},
			want:   true,
		},
		{
			name:          "item count grew",
			local:         local,
			localChildren: 10,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 12, LastActivityAt: now},
			want:          true,
		},
		{
			name:          "item count shrank",
			local:         local,
			localChildren: 10,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 9, LastActivityAt: now},
			want:          true,
		},
		{
			name:          "newer remote activity",
			local:         local,
			localChildren: 10,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 10, LastActivityAt: now.Add(time.Minute)},
			want:          true,
		},
		{
			name:          "missing stored children",
			local:         local,
			localChildren: 8,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 10, LastActivityAt: now},
			want:          true,
		},
		{
			name:          "up to date",
			local:         local,
			localChildren: 10,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 10, LastActivityAt: now},
			want:          false,
		},
		{
			name:          "local newer than remote",
			local:         local,
			localChildren: 11,
			remote:        RemoteSummary{RemoteID: 7, ItemCount: 10, LastActivityAt: now.Add(-time.Hour)},
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsRefetch(tt.local, tt.localChildren, tt.remote))
		})
	}
}

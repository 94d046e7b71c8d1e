package services

import (
	"strconv"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// BuildDocuments projects a subject record and its child items onto search
// documents. record may be nil when only children were fetched.
func BuildDocuments(kind domain.SourceKind, record *domain.LocalRecord, children []domain.ChildItem) []domain.SearchDocument {
	subjectType, childType := domain.EntityTypes(kind)

	docs := make([]domain.SearchDocument, 0, len(children)+1)
	if record != nil {
		docs = append(docs, domain.SearchDocument{
			EntityID:   entityID(subjectType, record.SubjectID),
			EntityType: subjectType,
			InstanceID: record.InstanceID,
			SubjectID:  record.SubjectID,
			Author:     record.Author,
			Title:      record.Title,
			Slug:       record.Slug,
			Body:       record.Body,
		})
	}

	for i := range children {
		c := &children[i]
		body := c.Text
		if body == "" {
			body = c.Body
		}
		docs = append(docs, domain.SearchDocument{
			EntityID:   entityID(childType, c.ChildID),
			EntityType: childType,
			InstanceID: c.InstanceID,
			SubjectID:  c.SubjectID,
			ChildID:    c.ChildID,
			Number:     c.Number,
			Author:     c.Author,
			Body:       body,
		})
	}
	return docs
}

// subjectEntityID prefers the record's global id so subjects from different
// instances sharing an index do not collide.
func subjectEntityID(entityType string, record *domain.LocalRecord) string {
	if id, err := strconv.ParseInt(record.Attributes[domain.AttrGlobalID], 10, 64); err == nil && id > 0 {
		return entityID(entityType, id)
	}
	return entityID(entityType, record.SubjectID)
}

func entityID(entityType string, id int64) string {
	return entityType + "_" + strconv.FormatInt(id, 10)
}

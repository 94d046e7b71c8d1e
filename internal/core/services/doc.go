// Package services implements the driving port interfaces.
// Services contain the core indexing logic and orchestrate
// calls to driven ports (adapters).
//
// The SourceWorker owns a DedupQueue and its consumer loop, the Scheduler
// triggers periodic "fetch latest" walks, and the Registry ties one worker
// per source instance together behind the driving.Indexer port.
package services

package config

const (
	// TopicIngestDocument is the NSQ topic carrying accepted uploads into
	// the ingestion pipeline.
	TopicIngestDocument = "ingest.document"

	// ChannelIngestWorker is the consumer channel for the in-process
	// ingestion worker.
	ChannelIngestWorker = "worker"
)

package models

// IngestionEvent is published to Kafka after an ingestion run completes
type IngestionEvent struct {
	EventType string             `json:"event_type"`
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Data      IngestionEventData `json:"data"`
}

// IngestionEventData carries the counts of an ingestion run
type IngestionEventData struct {
	File          string `json:"file"`
	RowsRead      int    `json:"rows_read"`
	Inserted      int    `json:"inserted"`
	Errors        int    `json:"errors"`
	StatsComputed int    `json:"stats_computed"`
	TotalListings int    `json:"total_listings"`
}

// EventTypeListingsIngested marks a completed ingestion run
const EventTypeListingsIngested = "LISTINGS_INGESTED"

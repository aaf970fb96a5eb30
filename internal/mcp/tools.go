package mcp

// StartWatchInput defines the input schema for the start_watch tool.
type StartWatchInput struct {
	Path string `json:"path" jsonschema:"absolute path of the directory to watch"`
}

// StartWatchOutput defines the output schema for the start_watch tool.
type StartWatchOutput struct {
	Path      string `json:"path" jsonschema:"the watched directory"`
	FileCount int    `json:"file_count" jsonschema:"eligible documents found by the initial scan"`
}

// StopWatchInput defines the input schema for the stop_watch tool.
type StopWatchInput struct {
	Path string `json:"path,omitempty" jsonschema:"directory to stop watching; empty stops all watches"`
}

// StopWatchOutput defines the output schema for the stop_watch tool.
type StopWatchOutput struct {
	Stopped []string `json:"stopped" jsonschema:"directories no longer watched"`
}

// UpdateFileInput defines the input schema for the update_file tool.
type UpdateFileInput struct {
	Path  string `json:"path" jsonschema:"absolute path of the document to index"`
	Force bool   `json:"force,omitempty" jsonschema:"reindex even when the content hash is unchanged"`
}

// UpdateFileOutput defines the output schema for the update_file tool.
type UpdateFileOutput struct {
	Path            string `json:"path"`
	Status          string `json:"status" jsonschema:"success, skipped:unchanged, skipped:no_content, or error:embedding_failed"`
	ChunksProcessed int    `json:"chunks_processed"`
	Reason          string `json:"reason,omitempty" jsonschema:"failure detail when status is an error"`
}

// DeleteFileIndexInput defines the input schema for the delete_file_index tool.
type DeleteFileIndexInput struct {
	Path string `json:"path" jsonschema:"absolute path of the document to remove from the index"`
}

// DeleteFileIndexOutput defines the output schema for the delete_file_index tool.
type DeleteFileIndexOutput struct {
	Path          string `json:"path"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the semantic search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchResultOutput is one search hit.
type SearchResultOutput struct {
	FilePath       string            `json:"file_path"`
	ParagraphIndex int               `json:"paragraph_index"`
	Content        string            `json:"content"`
	WordCount      int               `json:"word_count"`
	Similarity     float64           `json:"similarity"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"matching chunks ordered by similarity"`
	Backend string               `json:"backend" jsonschema:"which search backend served the query"`
}

// StatsInput defines the input schema for the stats tool.
type StatsInput struct{}

// StatsOutput defines the output schema for the stats tool.
type StatsOutput struct {
	TotalChunks        int64   `json:"total_chunks"`
	TotalDocuments     int64   `json:"total_documents"`
	AvgWordCount       float64 `json:"avg_word_count"`
	AvgCharCount       float64 `json:"avg_char_count"`
	Backend            string  `json:"backend"`
	DatabaseBytes      int64   `json:"database_bytes"`
	EmbeddingModel     string  `json:"embedding_model"`
	WatchedDirectories int     `json:"watched_directories"`
	QueueLength        int     `json:"queue_length"`
	EventsProcessed    uint64  `json:"events_processed"`
	EventsDropped      uint64  `json:"events_dropped"`
}

// ListWatchedInput defines the input schema for the list_watched tool.
type ListWatchedInput struct{}

// WatchedDirectory is one entry of the list_watched output.
type WatchedDirectory struct {
	Path      string `json:"path"`
	FileCount int    `json:"file_count"`
	Recursive bool   `json:"recursive"`
	Active    bool   `json:"active"`
	StartedAt string `json:"started_at"`
}

// ListWatchedOutput defines the output schema for the list_watched tool.
type ListWatchedOutput struct {
	Directories []WatchedDirectory `json:"directories"`
}

package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// SyncResponse reports the outcome of one embedding sweep
// @Description Embedding sweep result
type SyncResponse struct {
	Success  bool   `json:"success" example:"true"`
	Embedded int    `json:"embedded" example:"42"` // Messages embedded this sweep
	Skipped  int    `json:"skipped" example:"1"`   // Duplicates that raced into existence
	Failed   int    `json:"failed" example:"0"`    // Embedding failures, retried next sweep
	Error    string `json:"error,omitempty" example:""`
}

// VerifyResponse reports embedding integrity check results
// @Description Embedding integrity check result
type VerifyResponse struct {
	Success bool   `json:"success" example:"true"`
	Invalid int    `json:"invalid" example:"0"`       // Records with missing or wrong-dimension vectors
	Deleted int64  `json:"deleted,omitempty" example:"0"` // Records removed by cleanup
	Error   string `json:"error,omitempty" example:""`
}

// UnansweredResponse lists thread heads currently awaiting an operator reply
// @Description Unanswered thread scan result
type UnansweredResponse struct {
	Success bool      `json:"success" example:"true"`
	Count   int       `json:"count" example:"3"`
	Threads []Message `json:"threads"`
	Error   string    `json:"error,omitempty" example:""`
}

// SearchRequest asks for the k most similar historical messages
// @Description Similarity search request payload
type SearchRequest struct {
	Query string `json:"query" example:"catering minimum for a June wedding"`
	K     int    `json:"k" example:"3"`
}

// SearchResponse carries thread-diversified retrieval matches
// @Description Similarity search response payload
type SearchResponse struct {
	Success bool    `json:"success" example:"true"`
	Matches []Match `json:"matches"`
	Error   string  `json:"error,omitempty" example:""`
}

// RespondRequest drives one response-generation sweep
// @Description Response generation request payload
type RespondRequest struct {
	DaysBack int `json:"days_back" example:"7"` // How far back to scan for unanswered threads
	Limit    int `json:"limit" example:"3"`     // Maximum threads to process
	K        int `json:"k" example:"3"`         // Similar conversations per draft
}

// RespondResponse carries the staged drafts from one sweep
// @Description Response generation sweep result
type RespondResponse struct {
	Success bool    `json:"success" example:"true"`
	Drafts  []Draft `json:"drafts"`
	Error   string  `json:"error,omitempty" example:""`
}

// StatsResponse summarizes both collections and embedding coverage
// @Description Collection statistics
type StatsResponse struct {
	Success          bool    `json:"success" example:"true"`
	TotalMessages    int     `json:"total_messages" example:"120"`
	OperatorMessages int     `json:"operator_messages" example:"58"`
	ExternalMessages int     `json:"external_messages" example:"62"`
	TotalEmbedded    int     `json:"total_embedded" example:"120"`
	Pending          int     `json:"pending" example:"0"`   // Messages still awaiting embeddings
	Coverage         float64 `json:"coverage" example:"100"` // Embedded / total, percent
	Error            string  `json:"error,omitempty" example:""`
}

// MigrateResponse reports a sender-class backfill
// @Description Sender classification migration result
type MigrateResponse struct {
	Success bool   `json:"success" example:"true"`
	Updated int64  `json:"updated" example:"17"` // Rows whose sender_class changed
	Error   string `json:"error,omitempty" example:""`
}

// AdminAuthRequest represents admin login credentials
// @Description Admin login request payload
type AdminAuthRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password"`
}

// AdminAuthResponse represents the admin login result
// @Description Admin login response payload
type AdminAuthResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty" example:""`
}

// TriggerSweepResponse reports a launched Kubernetes sweep job
// @Description Sweep job trigger result
type TriggerSweepResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Sweep job created"`
	JobName string `json:"job_name,omitempty" example:"embed-sweep-1718000000"`
	Error   string `json:"error,omitempty" example:""`
}

// SweepJobStatus represents the status of a Kubernetes sweep job
// @Description Sweep job status
type SweepJobStatus struct {
	JobName        string  `json:"job_name"`
	Status         string  `json:"status"`
	Active         int32   `json:"active"`
	Succeeded      int32   `json:"succeeded"`
	Failed         int32   `json:"failed"`
	StartTime      *string `json:"start_time,omitempty"`
	CompletionTime *string `json:"completion_time,omitempty"`
}

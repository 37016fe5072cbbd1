package entity

import "time"

// JobType selects the inference model and the result extractor.
type JobType string

const (
	JobTypeSemantic   JobType = "semantic"
	JobTypeRefinement JobType = "refinement"
	JobTypeError      JobType = "error"
)

// JobStatus is shared by jobs, renders and the provider's status vocabulary.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusStarting   JobStatus = "starting"
	StatusProcessing JobStatus = "processing"
	StatusSucceeded  JobStatus = "succeeded"
	StatusCanceled   JobStatus = "canceled"
	StatusFailed     JobStatus = "failed"
	StatusError      JobStatus = "error"
)

// IsTerminal reports whether no further status transition is expected.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusCanceled, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// IsProviderStatus reports whether s belongs to the provider's vocabulary.
// pending and error are worker-side statuses only.
func (s JobStatus) IsProviderStatus() bool {
	switch s {
	case StatusStarting, StatusProcessing, StatusSucceeded, StatusCanceled, StatusFailed:
		return true
	default:
		return false
	}
}

// OriginEnvironment identifies the client that requested the job.
type OriginEnvironment string

const (
	OriginWebapp OriginEnvironment = "webapp"
	OriginRhino  OriginEnvironment = "rhino"
)

// Environment is the deployment the job was routed to.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)

// PredictionJob is one end-to-end image generation request.
type PredictionJob struct {
	JobID                    string              `gorm:"column:job_id;primaryKey;type:varchar(191)" json:"jobId"`
	Type                     JobType             `gorm:"column:type;type:varchar(32);index;not null" json:"type"`
	Status                   JobStatus           `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	UserID                   *string             `gorm:"column:user_id;type:varchar(191);index" json:"userId"`
	SessionID                string              `gorm:"column:session_id;type:varchar(191);index" json:"sessionId"`
	TransactionID            *string             `gorm:"column:transaction_id;type:varchar(64)" json:"transactionId"`
	OriginEnvironment        OriginEnvironment   `gorm:"column:origin_environment;type:varchar(32)" json:"originEnvironment"`
	OriginID                 string              `gorm:"column:origin_id;type:varchar(191)" json:"originId"`
	PredictionOutgoing       Outgoing            `gorm:"column:prediction_outgoing;type:json" json:"predictionOutgoing"`
	PredictionIncoming       *PredictionIncoming `gorm:"column:prediction_incoming;type:json" json:"predictionIncoming"`
	RenderIDs                StringArray         `gorm:"column:render_ids;type:json" json:"renderIds"`
	ComputeTime              *float64            `gorm:"column:compute_time" json:"computeTime"`
	DeliveryTime             *float64            `gorm:"column:delivery_time" json:"deliveryTime"`
	ErrorMessage             *string             `gorm:"column:error_message;type:text" json:"errorMessage"`
	ServerLog                *string             `gorm:"column:server_log;type:text" json:"serverLog"`
	ExpectedImageCount       int                 `gorm:"column:expected_image_count;not null;default:0" json:"expectedImageCount"`
	ExpectedImageWidth       *int                `gorm:"column:expected_image_width" json:"expectedImageWidth"`
	ExpectedImageHeight      *int                `gorm:"column:expected_image_height" json:"expectedImageHeight"`
	PredictionModelVersionID *string             `gorm:"column:prediction_model_version_id;type:varchar(191)" json:"predictionModelVersionId"`
	CreatedAt                time.Time           `json:"createdAt"`
	UpdatedAt                time.Time           `json:"updatedAt"`
}

// TableName overrides the default table name.
func (PredictionJob) TableName() string {
	return "prediction_jobs"
}

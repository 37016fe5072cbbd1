package entity

// patchField is one changed column. column is the relational name, key the
// JSON name used by document-style stores.
type patchField struct {
	column string
	key    string
	value  interface{}
}

func toColumnMap(fields []patchField) map[string]interface{} {
	updates := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		updates[f.column] = f.value
	}
	return updates
}

func toKeyMap(fields []patchField) map[string]interface{} {
	updates := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		updates[f.key] = f.value
	}
	return updates
}

// JobUpdates is a partial update of a PredictionJob. Nil fields are left unchanged.
type JobUpdates struct {
	Type               *JobType
	Status             *JobStatus
	UserID             *string
	TransactionID      *string
	PredictionIncoming *PredictionIncoming
	RenderIDs          *StringArray
	ComputeTime        *float64
	DeliveryTime       *float64
	ErrorMessage       *string
	ServerLog          *string
}

func (u JobUpdates) fields() []patchField {
	var out []patchField
	if u.Type != nil {
		out = append(out, patchField{"type", "type", *u.Type})
	}
	if u.Status != nil {
		out = append(out, patchField{"status", "status", *u.Status})
	}
	if u.UserID != nil {
		out = append(out, patchField{"user_id", "userId", *u.UserID})
	}
	if u.TransactionID != nil {
		out = append(out, patchField{"transaction_id", "transactionId", *u.TransactionID})
	}
	if u.PredictionIncoming != nil {
		out = append(out, patchField{"prediction_incoming", "predictionIncoming", *u.PredictionIncoming})
	}
	if u.RenderIDs != nil {
		out = append(out, patchField{"render_ids", "renderIds", *u.RenderIDs})
	}
	if u.ComputeTime != nil {
		out = append(out, patchField{"compute_time", "computeTime", *u.ComputeTime})
	}
	if u.DeliveryTime != nil {
		out = append(out, patchField{"delivery_time", "deliveryTime", *u.DeliveryTime})
	}
	if u.ErrorMessage != nil {
		out = append(out, patchField{"error_message", "errorMessage", *u.ErrorMessage})
	}
	if u.ServerLog != nil {
		out = append(out, patchField{"server_log", "serverLog", *u.ServerLog})
	}
	return out
}

// ToMap returns the patch keyed by column name.
func (u JobUpdates) ToMap() map[string]interface{} {
	return toColumnMap(u.fields())
}

// ToRecord returns the patch keyed by JSON field names.
func (u JobUpdates) ToRecord() map[string]interface{} {
	return toKeyMap(u.fields())
}

// IsEmpty reports whether no field is set.
func (u JobUpdates) IsEmpty() bool {
	return len(u.fields()) == 0
}

// Apply copies the set fields onto job.
func (u JobUpdates) Apply(job *PredictionJob) {
	if job == nil {
		return
	}
	if u.Type != nil {
		job.Type = *u.Type
	}
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.UserID != nil {
		v := *u.UserID
		job.UserID = &v
	}
	if u.TransactionID != nil {
		v := *u.TransactionID
		job.TransactionID = &v
	}
	if u.PredictionIncoming != nil {
		v := *u.PredictionIncoming
		job.PredictionIncoming = &v
	}
	if u.RenderIDs != nil {
		job.RenderIDs = append(StringArray(nil), (*u.RenderIDs)...)
	}
	if u.ComputeTime != nil {
		v := *u.ComputeTime
		job.ComputeTime = &v
	}
	if u.DeliveryTime != nil {
		v := *u.DeliveryTime
		job.DeliveryTime = &v
	}
	if u.ErrorMessage != nil {
		v := *u.ErrorMessage
		job.ErrorMessage = &v
	}
	if u.ServerLog != nil {
		v := *u.ServerLog
		job.ServerLog = &v
	}
}

// RenderUpdates is a partial update of a Render.
type RenderUpdates struct {
	Status *JobStatus
	URL    *string
	Width  *int
	Height *int
	Seed   *int64
}

func (u RenderUpdates) fields() []patchField {
	var out []patchField
	if u.Status != nil {
		out = append(out, patchField{"status", "status", *u.Status})
	}
	if u.URL != nil {
		out = append(out, patchField{"url", "url", *u.URL})
	}
	if u.Width != nil {
		out = append(out, patchField{"width", "width", *u.Width})
	}
	if u.Height != nil {
		out = append(out, patchField{"height", "height", *u.Height})
	}
	if u.Seed != nil {
		out = append(out, patchField{"seed", "seed", *u.Seed})
	}
	return out
}

// ToMap returns the patch keyed by column name.
func (u RenderUpdates) ToMap() map[string]interface{} {
	return toColumnMap(u.fields())
}

// ToRecord returns the patch keyed by JSON field names.
func (u RenderUpdates) ToRecord() map[string]interface{} {
	return toKeyMap(u.fields())
}

// IsEmpty reports whether no field is set.
func (u RenderUpdates) IsEmpty() bool {
	return len(u.fields()) == 0
}

// Apply copies the set fields onto render.
func (u RenderUpdates) Apply(render *Render) {
	if render == nil {
		return
	}
	if u.Status != nil {
		render.Status = *u.Status
	}
	if u.URL != nil {
		v := *u.URL
		render.URL = &v
	}
	if u.Width != nil {
		v := *u.Width
		render.Width = &v
	}
	if u.Height != nil {
		v := *u.Height
		render.Height = &v
	}
	if u.Seed != nil {
		v := *u.Seed
		render.Seed = &v
	}
}

// Ptr returns a pointer to v. It keeps update literals short.
func Ptr[T any](v T) *T {
	return &v
}

package sharerequests

// SetShareRequest enables sharing on a thread with the given access level.
type SetShareRequest struct {
	Access string `json:"access" binding:"required,oneof=readonly editable"`
}

package domain

// Draft is the single most recent auto-drafted contact message.
// An empty Message means nothing has been generated yet.
type Draft struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
}

func (d Draft) Generated() bool {
	return d.Message != ""
}

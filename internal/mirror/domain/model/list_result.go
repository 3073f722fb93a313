package model

// ListResult is the page envelope returned by the remote list endpoint.
type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalPages int      `json:"totalPages"`
	TotalItems int      `json:"totalItems"`
	Items      []Record `json:"items"`
}

// RemoteError is the error body returned by the remote service on non-2xx.
type RemoteError struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

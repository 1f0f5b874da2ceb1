package graph

import "encoding/json"

// Record is a single API object as returned inside a response envelope.
type Record = map[string]any

// TimeRange bounds an insights query. Both dates use the YYYY-MM-DD form
// the API expects.
type TimeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// envelope is the standard list response shape: a data array plus an
// optional paging block.
type envelope struct {
	Data   []Record `json:"data"`
	Paging *paging  `json:"paging"`
}

type paging struct {
	Next    string   `json:"next"`
	Cursors *cursors `json:"cursors"`
}

type cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// apiErrorBody is the error payload carried by non-2xx responses.
type apiErrorBody struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		TraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}

func decodeErrorBody(body []byte) (apiErrorBody, bool) {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return parsed, false
	}
	return parsed, parsed.Error.Code != 0 || parsed.Error.Message != ""
}

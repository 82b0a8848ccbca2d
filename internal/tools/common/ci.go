package common

import (
	"encoding/json"
	"io"
	"os"
)

// CIResult is the single JSON line a tool prints in --ci mode.
type CIResult struct {
	Title   string   `json:"title"`
	OK      bool     `json:"ok"`
	Details []string `json:"details"`
	Error   string   `json:"error,omitempty"`
}

func WriteCIResult(w io.Writer, ok bool, title string, details []string, err error) error {
	res := CIResult{Title: title, OK: ok, Details: details}
	if res.Details == nil {
		res.Details = []string{}
	}
	if err != nil {
		res.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

func PrintCIResult(ok bool, title string, details []string, err error) {
	_ = WriteCIResult(os.Stdout, ok, title, details, err)
}

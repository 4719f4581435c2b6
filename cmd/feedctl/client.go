package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
}

// writeResponse pretty-prints a JSON body to out or turns a non-2xx status into an error.
func writeResponse(resp *resty.Response, err error, out io.Writer) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), bytes.TrimSpace(resp.Body()))
	}
	body := resp.Body()
	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}

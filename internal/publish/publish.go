// Package publish pushes the merged subscription corpus to a Sub-Store
// style API so downstream clients pull one combined subscription.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/gologger"
)

// plainFiles hold one URL per line; anything else is treated as a sub-store
// file and parsed by section.
var plainFiles = map[string]bool{
	"config_clash.txt": true,
	"config_v2.txt":    true,
	"config_loon.txt":  true,
}

// Sections extracts the subscription lines from one output file. Plain list
// files contribute every non-empty line; the sub-store file contributes only
// its "-- sub_list --" section.
func Sections(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	var out []string
	if plainFiles[filepath.Base(path)] {
		for _, line := range lines {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out, nil
	}
	inSubList := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "-- sub_list --":
			inSubList = true
		case inSubList && strings.HasPrefix(line, "--"):
			return out, nil
		case inSubList && line != "":
			out = append(out, line)
		}
	}
	return out, nil
}

type Client struct {
	API  string
	HTTP *http.Client
}

// Push registers the merged corpus under the fixed collection name. The API
// answers the stored record; non-2xx is the only failure surfaced.
func (c *Client) Push(ctx context.Context, merged string) error {
	data, err := json.Marshal(body(merged))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.API+"/hbgx", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sub-store API returned %d: %s", resp.StatusCode, respBody)
	}
	gologger.Info().Msgf("sub-store API response: %s", respBody)
	return nil
}

// body is the subscription record the API expects: the merged URL corpus
// plus the fixed processing chain (quick settings, drop plain-http nodes,
// rename script, duplicate handling) and a synthetic userinfo string.
func body(merged string) map[string]any {
	return map[string]any{
		"name":                  "hbgx",
		"displayName":           "github抓取",
		"form":                  "",
		"remark":                "",
		"mergeSources":          "",
		"ignoreFailedRemoteSub": "quiet",
		"passThroughUA":         false,
		"icon":                  "https://raw.githubusercontent.com/cc63/ICON/main/icons/AMY.png",
		"isIconColor":           true,
		"process": []map[string]any{
			{
				"type": "Quick Setting Operator",
				"args": map[string]any{
					"useless":    "DISABLED",
					"udp":        "DEFAULT",
					"scert":      "DEFAULT",
					"tfo":        "DEFAULT",
					"vmess aead": "DEFAULT",
				},
			},
			{
				"type": "Type Filter",
				"args": map[string]any{
					"keep":  false,
					"value": []string{"http"},
				},
				"customName": "",
				"id":         "95060789.72173387",
				"disabled":   false,
			},
			{
				"type": "Script Operator",
				"args": map[string]any{
					"content": "https://raw.githubusercontent.com/xujw3/other/refs/heads/main/rename.js#clear&flag",
					"mode":    "link",
					"arguments": map[string]any{
						"clear": true,
						"flag":  true,
					},
				},
				"id":       "36934923.422785416",
				"disabled": false,
			},
			{
				"type": "Handle Duplicate Operator",
				"args": map[string]any{
					"action":   "delete",
					"position": "back",
					"template": "0 1 2 3 4 5 6 7 8 9",
					"link":     "-",
				},
				"customName": "",
				"id":         "40664239.26595869",
				"disabled":   false,
			},
		},
		"subUserinfo":      "upload=1000000000000; download=1000000000000; total=100000000000000; expire=4115721600; reset_day=1; plan_name=VIP9; app_url=https://sub.xujw.dpdns.org/",
		"proxy":            "",
		"tag":              []string{"第三方"},
		"subscriptionTags": []string{},
		"source":           "remote",
		"url":              merged,
		"content":          "",
		"ua":               "Clash Verge/1.7.1",
		"subscriptions":    []string{},
		"display-name":     "github抓取",
	}
}

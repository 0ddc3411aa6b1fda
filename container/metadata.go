package container

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// generatorKV mirrors one {key: ..., value: ...} pair in the kfxgen
// metadata block. The block on disk is not quite JSON: keys are bare
// identifiers rather than quoted strings, so it must be patched before
// json.Unmarshal will accept it.
type generatorKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var bareKeyPattern = regexp.MustCompile(`(\w+)\s*:`)

// parseGeneratorMetadata decodes the kfxgen metadata blob that follows
// container_info, returning the generator app/package versions and a
// container ID fallback (kfxgen_acr), when present. Malformed or absent
// metadata is not an error: callers fall back to zero values.
func parseGeneratorMetadata(data []byte) (app, pkg, acr string) {
	cleaned := bytes.ReplaceAll(data, []byte{0x1B}, nil)
	text := bareKeyPattern.ReplaceAllString(string(cleaned), `"$1":`)

	var items []generatorKV
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return "", "", ""
	}
	for _, item := range items {
		switch item.Key {
		case "appVersion", "kfxgen_application_version":
			app = item.Value
		case "buildVersion", "kfxgen_package_version":
			pkg = item.Value
		case "kfxgen_acr":
			acr = item.Value
		}
	}
	return app, pkg, acr
}

// buildGeneratorMetadata serializes the generator info block in the same
// pseudo-JSON (bare, unquoted keys) form producers emit.
func buildGeneratorMetadata(app, pkg, acr, payloadSHA1 string) []byte {
	items := []generatorKV{
		{Key: "kfxgen_package_version", Value: pkg},
		{Key: "kfxgen_application_version", Value: app},
		{Key: "kfxgen_payload_sha1", Value: payloadSHA1},
		{Key: "kfxgen_acr", Value: acr},
	}
	data, _ := json.Marshal(items)
	text := string(data)
	text = strings.ReplaceAll(text, `"key":`, "key:")
	text = strings.ReplaceAll(text, `"value":`, "value:")
	return []byte(text)
}

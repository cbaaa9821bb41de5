package config

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// DetectProjectName returns the "name" field of dir/package.json, or the
// base name of dir when the manifest is missing, malformed or unnamed.
func DetectProjectName(dir string) string {
	if name := detectFromPackageJSON(dir); name != "" {
		return name
	}
	return filepath.Base(dir)
}

func detectFromPackageJSON(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil || !gjson.ValidBytes(data) {
		return ""
	}
	name := gjson.GetBytes(data, "name")
	if name.Type != gjson.String {
		return ""
	}
	return name.String()
}

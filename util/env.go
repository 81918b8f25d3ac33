package util

import (
	"os"
	"regexp"
)

var (
	expandRegex = regexp.MustCompile("%([a-zA-Z_0-9]+)%")
)

// ExpandEnv 展开路径中的环境变量, 同时支持 Windows 风格的 %VAR% 与 $VAR/${VAR}.
func ExpandEnv(v string) string {
	v = expandRegex.ReplaceAllString(v, "$${$1}")
	return os.Expand(v, getenv)
}

func getenv(v string) string {
	switch v {
	case "$":
		return "$"
	}
	return os.Getenv(v)
}

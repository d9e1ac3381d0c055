// Package web 内嵌 HTML 页面模板
package web

import "embed"

//go:embed templates/*.html
var TemplateFS embed.FS

package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves API documentation for every route registered on r:
//   - GET /swagger/index.html: Swagger UI loading the document below
//   - GET /swagger/doc.json: OpenAPI document built from r.Routes()
func RegisterSwagger(r *gin.Engine, version string) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, openAPI(r.Routes(), version))
	})
}

var pathParam = regexp.MustCompile(`:([A-Za-z]+)`)

func openAPI(routes gin.RoutesInfo, version string) gin.H {
	paths := gin.H{}
	for _, rt := range routes {
		if strings.HasPrefix(rt.Path, "/swagger") {
			continue
		}
		path := pathParam.ReplaceAllString(rt.Path, "{$1}")
		item, ok := paths[path].(gin.H)
		if !ok {
			item = gin.H{}
			paths[path] = item
		}
		op := gin.H{
			"summary":   summary(rt.Handler),
			"responses": gin.H{"200": gin.H{"description": "ok"}},
		}
		if params := pathParam.FindAllStringSubmatch(rt.Path, -1); len(params) > 0 {
			list := make([]gin.H, 0, len(params))
			for _, p := range params {
				list = append(list, gin.H{"name": p[1], "in": "path", "required": true, "schema": gin.H{"type": "string"}})
			}
			op["parameters"] = list
		}
		if strings.HasPrefix(rt.Path, "/api/") {
			op["security"] = []gin.H{{"bearer": []string{}}}
		}
		item[strings.ToLower(rt.Method)] = op
	}
	return gin.H{
		"openapi": "3.0.0",
		"info":    gin.H{"title": "cloudquiz-api", "version": version},
		"paths":   paths,
		"components": gin.H{
			"securitySchemes": gin.H{"bearer": gin.H{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}},
		},
	}
}

// summary turns a handler name such as
// "github.com/.../handlers.(*API).CreateQuestion-fm" into "CreateQuestion".
func summary(handler string) string {
	name := handler[strings.LastIndex(handler, ".")+1:]
	return strings.TrimSuffix(name, "-fm")
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>cloudquiz-api · Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

package swagger

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
)

const (
	// DocsPath serves the Swagger UI.
	DocsPath = "/docs"

	// SpecPath serves the OpenAPI document rendered by the UI.
	SpecPath = "/docs/openapi.yml"
)

// Register mounts the Swagger UI and the embedded OpenAPI document.
func Register(r chi.Router) {
	page := []byte(fmt.Sprintf(pageTemplate, SpecPath))
	spec := apicontract.GetSpecBytes()

	r.Get(DocsPath, serve("text/html; charset=utf-8", page))
	r.Get(SpecPath, serve("application/yaml", spec))
}

func serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		w.Write(body)
	}
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Product Catalog API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.29.3/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.29.3/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({ url: '%s', dom_id: '#swagger-ui', deepLinking: true });
  };
</script>
</body>
</html>
`

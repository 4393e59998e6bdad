package routes

import (
	"bytes"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/config"
)

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    :root { color-scheme: light; --text: #132019; --muted: #536258; --accent: #1f6f4a; --border: #d8ddd6; }
    body { margin: 0; font-family: Georgia, "Times New Roman", serif; color: var(--text); background: #f6f7f4; }
    main { max-width: 960px; margin: 0 auto; padding: 48px 20px 64px; }
    h1 { margin: 0 0 12px; }
    p { color: var(--muted); line-height: 1.6; }
    table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid var(--border); }
    th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid var(--border); }
    th { font-size: 0.85rem; text-transform: uppercase; letter-spacing: 0.08em; color: var(--muted); }
    code { color: var(--accent); }
  </style>
</head>
<body>
  <main>
    <h1>{{ .Title }}</h1>
    <p>Routes registered on this server as of {{ .LoadedAt }}. Everything under <code>/api/v1</code> expects a bearer token from <code>/api/auth/login</code>. The same list is available as JSON at <code>/docs/routes.json</code>.</p>
    <table>
      <thead><tr><th>Method</th><th>Path</th></tr></thead>
      <tbody>
      {{- range .Routes }}
        <tr><td>{{ .Method }}</td><td><code>{{ .Path }}</code></td></tr>
      {{- end }}
      </tbody>
    </table>
  </main>
</body>
</html>
`

type apiRoute struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type docsPageData struct {
	Title    string
	LoadedAt string
	Routes   []apiRoute
}

// registerDocsRoutes serves an index of the /api routes. It reads the route
// table per request, so it may be registered before the routes it lists.
func registerDocsRoutes(app *fiber.App, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return err
	}
	loadedAt := time.Now().UTC().Format(time.RFC3339)

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		err := indexTemplate.Execute(&body, docsPageData{
			Title:    "learnroad API",
			LoadedAt: loadedAt,
			Routes:   apiRoutes(app),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}
		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/routes.json", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"routes": apiRoutes(app)})
	})

	return nil
}

func apiRoutes(app *fiber.App) []apiRoute {
	seen := make(map[apiRoute]struct{})
	routes := make([]apiRoute, 0)
	for _, route := range app.GetRoutes(true) {
		if route.Method == fiber.MethodHead || !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		entry := apiRoute{Method: route.Method, Path: route.Path}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		routes = append(routes, entry)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("Cross-Origin-Resource-Policy", "same-origin")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}

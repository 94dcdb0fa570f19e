// Package api hosts the HTTP server, middleware, and handlers for the site.
// Notable routes:
//   - Every request first passes the redirect middleware, which consults the
//     redirect.Resolver for paths outside the reserved prefixes.
//   - GET /_internal/healthz, /_internal/readyz for probes and
//     /_internal/metrics for Prometheus scraping.
//   - POST /api/contact for the contact form.
//   - GET /sitemap.xml rendered from static and published pages.
//   - /admin/api/redirects for rule CRUD plus a forced refresh, behind the
//     admin cookie.
//   - Anything else is served from the static directory when configured.
package api

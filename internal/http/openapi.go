package http

// openapiSpec is served verbatim at GET /openapi.yaml (spec §6, public).
// It documents the handler surface registered in router.go; kept as a
// plain string rather than round-tripped through a codegen tool since
// WebPeel's REST surface is small enough to hand-maintain.
const openapiSpec = `openapi: 3.0.3
info:
  title: WebPeel API
  version: "1.0.0"
paths:
  /health:
    get:
      summary: Liveness/version check
      security: []
  /v1/fetch:
    get:
      summary: Fetch and extract a single URL
    post:
      summary: Fetch and extract a single URL
  /v1/search:
    get:
      summary: Web search
  /v1/extract:
    post:
      summary: LLM or heuristic structured extraction
  /v1/batch/scrape:
    post:
      summary: Start an async batch scrape job
  /v1/batch/scrape/{id}:
    get:
      summary: Poll a batch scrape job
    delete:
      summary: Cancel a batch scrape job
  /v1/answer:
    post:
      summary: Long-form question answering over a URL
  /v1/answer/quick:
    get:
      summary: BM25 quick-answer heuristic
  /v1/screenshot:
    post:
      summary: Capture a rendered-page screenshot
  /v1/screenshot/design-analysis:
    post:
      summary: Capture a screenshot plus layout heuristics
  /v1/watch:
    post:
      summary: Create a persistent watch
    get:
      summary: List watches for the authenticated API key
  /v1/watch/{id}:
    delete:
      summary: Delete a watch
  /v1/map:
    post:
      summary: Discover URLs on a site via sitemap/link-following
  /v1/crawl:
    post:
      summary: Crawl a site, peeling every discovered URL
  /v1/crawl/{id}:
    get:
      summary: Poll a crawl job
  /v1/jobs/{id}:
    get:
      summary: Poll any async job
    delete:
      summary: Cancel a pending/running job
  /v1/jobs:
    get:
      summary: List jobs for the authenticated API key
`

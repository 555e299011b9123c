// Package handler implements the budget HTTP API.
//
// Routes:
//
//	GET    /api/health
//	GET    /api/ready
//	GET    /api/budgets
//	POST   /api/budgets
//	GET    /api/budgets/{id}
//	PUT    /api/budgets/{id}
//	DELETE /api/budgets/{id}
//
// Success bodies are bare JSON documents. Failures carry
// {"code","message","detail","request_id"} and the X-Error-Code header.
package handler

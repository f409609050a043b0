// Package api provides the grants dashboard REST API.
//
//	@title			Grantdesk API
//	@version		1.0
//	@description	Grants dashboard state, backend records and n8n automation
//	@BasePath		/api/v1
package api

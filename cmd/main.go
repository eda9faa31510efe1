// cmd/main.go
package main

import (
	"hotel-user-api/app"
)

// @title           Hotel User API
// @version         1.0
// @description     Authentication and user management service for the hotel platform.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}

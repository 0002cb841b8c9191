// @title           Iceberg API
// @version         1.0
// @description     API платформы доставки: аутентификация, 2FA и управление ролями.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /

package main

import "iceberg_backend/internal/app"

func main() {
	app.Run()
}

package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/g2pd/docs.go`.
//
// @title           g2pd API
// @version         1.0
// @description     HTTP API for grapheme-to-phoneme manifest conversion.
//
// @contact.name   g2pd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

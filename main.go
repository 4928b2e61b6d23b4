package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/goseal/internal/app"
)

// @title           Goseal API
// @version         1.0
// @description     Goseal fingerprints documents and hashes service credentials.
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a service token.
func main() {
	application := app.New()
	wait := application.Start()
	<-wait
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}

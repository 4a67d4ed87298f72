package main

import "github.com/feanor306/task-app-api/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	app.MustMigratePostgres()

	app.MustStartMailer()
	defer app.StopMailer()

	app.MustListenAndServeHTTP()
}

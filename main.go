package main

import "stream-service/app"

func main() {
	app.Run()
}

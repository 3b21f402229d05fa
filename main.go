package main

import "scrumtrack/internal/app"

func main() {
	app.Main()
}

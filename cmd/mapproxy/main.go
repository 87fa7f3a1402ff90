package main

import "github.com/marcjansen/mapproxy/internal/app"

func main() {
	app.Run()
}

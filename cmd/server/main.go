package main

import "evalsheet/internal/app/server"

func main() {
	server.Run()
}

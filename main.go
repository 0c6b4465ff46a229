/*
Copyright © 2024 Victor Hang
*/
package main

import (
	"github.com/Banh-Canh/trapview/cmd"
	"github.com/Banh-Canh/trapview/internal/utils"
)

func main() {
	defer utils.SyncLogger()
	cmd.Execute()
}

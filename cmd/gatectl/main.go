// gatectl — консольный клиент Gate API: вход, выход и операции над справочником гербангов.
// Сессия хранится в TOML-файле пользователя и переживает перезапуск, как localStorage браузера.
package main

import (
	"os"
	"time"

	"github.com/gateadmin/internal/logger"
)

func main() {
	logger.SetPrefix("gatectl")
	err := newRootCmd().Execute()
	logger.Sync(time.Second)
	if err != nil {
		os.Exit(1)
	}
}

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package ui

func terminalCellSize() cellSize {
	return fallbackCell
}

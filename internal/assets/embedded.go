package assets

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed Icon.png
var iconPNG []byte

// IconResource is the window and notification icon.
var IconResource = fyne.NewStaticResource("Icon.png", iconPNG)

// Icon returns the raw PNG bytes handed to the recorder notification.
func Icon() []byte {
	return iconPNG
}

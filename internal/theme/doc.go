// Package theme holds the numbered colour palettes toasts and the gallery
// are drawn with. Four palettes are embedded; users may override any of
// them by dropping a TOML file with the same name into
// ~/.config/toasty/palettes/.
package theme

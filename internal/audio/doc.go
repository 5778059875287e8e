// Package audio plays a short sound when a toast appears. It uses the
// beep library to decode WAV, OGG and MP3 files, with a volume control
// and one sound per toast kind.
package audio

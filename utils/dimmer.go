package utils

// LevelToDMX converts a 0..1 intensity into a DMX channel value.
func LevelToDMX(level float64) byte {
	return byte(Clamp(level, 0, 1)*255 + 0.5)
}

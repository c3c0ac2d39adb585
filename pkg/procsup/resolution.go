package procsup

import "regexp"

// streamResolutionPattern matches ffmpeg/ffprobe-style stderr banner
// lines such as:
//
//	Stream #0:0: Video: h264, yuv420p, 1920x1080, 29.97 fps
var streamResolutionPattern = regexp.MustCompile(`Stream #\d+:\d+.*?Video:.*?(\d{2,5})x(\d{2,5})`)

// ParseStreamResolution extracts the first width/height reported in a
// subprocess's stderr banner, per §6's frame-extract subprocess
// contract: "reported resolution is parsed from its stderr ... Stream
// #X:Y: Video: ... WxH". Returns ok=false if no such line is present.
func ParseStreamResolution(stderr string) (width, height int, ok bool) {
	m := streamResolutionPattern.FindStringSubmatch(stderr)
	if m == nil {
		return 0, 0, false
	}
	width = atoiSafe(m[1])
	height = atoiSafe(m[2])
	if width == 0 || height == 0 {
		return 0, 0, false
	}
	return width, height, true
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

package imagecodec

// cfaPattern names which color filter sits at each corner of the 2x2
// repeating Bayer tile, indexed [row][col].
type cfaPattern struct {
	topLeft, topRight, botLeft, botRight byte // 'R', 'G', or 'B'
}

var (
	bayerBGGR = cfaPattern{'B', 'G', 'G', 'R'}
	bayerGBRG = cfaPattern{'G', 'B', 'R', 'G'}
	bayerGRBG = cfaPattern{'G', 'R', 'B', 'G'}
	bayerRGGB = cfaPattern{'R', 'G', 'G', 'B'}
)

// colorAt returns which filter color covers sensor pixel (x, y) under
// the given CFA tiling.
func (p cfaPattern) colorAt(x, y int) byte {
	switch {
	case y%2 == 0 && x%2 == 0:
		return p.topLeft
	case y%2 == 0 && x%2 == 1:
		return p.topRight
	case y%2 == 1 && x%2 == 0:
		return p.botLeft
	default:
		return p.botRight
	}
}

// bayerDecoder returns a decoderFunc that demosaics a single-channel
// Bayer-mosaiced sensor buffer into interleaved BGR using a bilinear
// neighbor average for the two channels not natively sampled at each
// pixel. This favors simplicity and correctness over the edge
// handling a production ISP would add; boundary pixels clamp to the
// nearest in-bounds neighbor instead of mirroring.
func bayerDecoder(pattern cfaPattern) decoderFunc {
	return func(data []byte, width, height int) ([]byte, error) {
		if err := checkSize(data, width, height, 1); err != nil {
			return nil, err
		}

		at := func(x, y int) int {
			if x < 0 {
				x = 0
			}
			if x >= width {
				x = width - 1
			}
			if y < 0 {
				y = 0
			}
			if y >= height {
				y = height - 1
			}
			return int(data[y*width+x])
		}

		out := make([]byte, width*height*3)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				var r, g, b int
				switch pattern.colorAt(x, y) {
				case 'R':
					r = at(x, y)
					g = avg4(at(x-1, y), at(x+1, y), at(x, y-1), at(x, y+1))
					b = avg4(at(x-1, y-1), at(x+1, y-1), at(x-1, y+1), at(x+1, y+1))
				case 'B':
					b = at(x, y)
					g = avg4(at(x-1, y), at(x+1, y), at(x, y-1), at(x, y+1))
					r = avg4(at(x-1, y-1), at(x+1, y-1), at(x-1, y+1), at(x+1, y+1))
				default: // 'G'
					g = at(x, y)
					if pattern.colorAt(x-1, y) == 'R' || pattern.colorAt(x+1, y) == 'R' {
						r = avg2(at(x-1, y), at(x+1, y))
						b = avg2(at(x, y-1), at(x, y+1))
					} else {
						b = avg2(at(x-1, y), at(x+1, y))
						r = avg2(at(x, y-1), at(x, y+1))
					}
				}
				i := (y*width + x) * 3
				out[i+0] = byte(b)
				out[i+1] = byte(g)
				out[i+2] = byte(r)
			}
		}
		return out, nil
	}
}

func avg2(a, b int) int { return (a + b) / 2 }
func avg4(a, b, c, d int) int { return (a + b + c + d) / 4 }

package mathutil

import "math"

// ZUpToYUp converts Z-up data to the Y-up world used by the renderer: Rx(-90°).
var ZUpToYUp = RotX(math.Pi / -2)

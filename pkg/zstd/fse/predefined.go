package fse

// Predefined distributions for the three sequence-symbol alphabets, used
// whenever a block's compression mode for that symbol type is Predefined
// rather than FSE_Compressed. Values are byte-for-byte the format's fixed
// defaults, verified only by their probabilities summing to 1<<AccuracyLog.

// LiteralLengthDefaultDistribution is the 36-symbol, accuracy log 6 table.
var LiteralLengthDefaultDistribution = []int32{
	4, 3, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2,
	2, 3, 2, 1, 1, 1, 1, 1,
	-1, -1, -1, -1,
}

// LiteralLengthDefaultAccuracyLog is the fixed accuracy log for the table above.
const LiteralLengthDefaultAccuracyLog = 6

// MatchLengthDefaultDistribution is the 53-symbol, accuracy log 6 table.
var MatchLengthDefaultDistribution = []int32{
	1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1,
	-1, -1, -1, -1, -1,
}

// MatchLengthDefaultAccuracyLog is the fixed accuracy log for the table above.
const MatchLengthDefaultAccuracyLog = 6

// OffsetDefaultDistribution is the 29-symbol, accuracy log 5 table.
var OffsetDefaultDistribution = []int32{
	1, 1, 1, 1, 1, 1, 2, 2,
	2, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	-1, -1, -1, -1, -1,
}

// OffsetDefaultAccuracyLog is the fixed accuracy log for the table above.
const OffsetDefaultAccuracyLog = 5

// LLBaseline and LLExtraBits give, for literal-length code c, the value
// baseline and number of extra (forward-read, little-endian) bits that
// follow it in the sequence bitstream.
var LLBaseline = [36]uint32{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 18, 20, 22, 24, 28, 32, 40, 48, 64, 128, 256, 512, 1024, 2048, 4096,
	8192, 16384, 32768, 65536,
}

var LLExtraBits = [36]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 2, 2, 3, 3, 4, 6, 7, 8, 9, 10, 11, 12,
	13, 14, 15, 16,
}

// MLBaseline and MLExtraBits are the match-length code analogue.
var MLBaseline = [53]uint32{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18,
	19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34,
	35, 37, 39, 41, 43, 47, 51, 59, 67, 83, 99, 131, 259, 515, 1027, 2051,
	4099, 8195, 16387, 32771, 65539,
}

var MLExtraBits = [53]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 2, 2, 3, 3, 4, 4, 5, 7, 8, 9, 10, 11,
	12, 13, 14, 15, 16,
}

// MaxLiteralLengthCode, MaxMatchLengthCode and MaxOffsetCode bound the
// alphabets a custom (non-predefined) table may describe.
const (
	MaxLiteralLengthCode = 35
	MaxMatchLengthCode   = 52
	MaxOffsetCode        = 31
)

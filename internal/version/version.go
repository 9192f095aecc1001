package version

import "strconv"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

// String generates a human readable version number
func (v *Version) String() string {
	return strconv.FormatInt(v.MajorNumber, 10) + "." + strconv.FormatInt(v.MinorNumber, 10) + "." + strconv.FormatInt(v.PatchNumber, 10)
}

var (
	AppVersion = Version{
		MajorNumber: 0,
		MinorNumber: 3,
		PatchNumber: 0,
	}
)

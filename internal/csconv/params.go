package csconv

// Generic parameter ids. EPSG parameter codes where they exist.
const (
	prmFalseEasting        uint32 = 8806
	prmFalseNorthing       uint32 = 8807
	prmScaleFactor         uint32 = 8805
	prmCentralMeridian     uint32 = 8802
	prmLatOrigin           uint32 = 8801
	prmStdParallel1        uint32 = 8823
	prmStdParallel2        uint32 = 8824
	prmLatCenter           uint32 = 8811
	prmLngCenter           uint32 = 8812
	prmAzimuth             uint32 = 8813
	prmRectifiedAngle      uint32 = 8814
	prmScaleInitialLine    uint32 = 8815
	prmPseudoParallel      uint32 = 8818
	prmScalePseudoParallel uint32 = 8819
	prmLatFalseOrigin      uint32 = 8821
	prmLngFalseOrigin      uint32 = 8822
	prmEastingFalseOrigin  uint32 = 8826
	prmNorthingFalseOrigin uint32 = 8827
	prmLngOrigin           uint32 = 8833
	prmColatConeAxis       uint32 = 1036

	prmPoleLng       uint32 = 500101
	prmPoleLat       uint32 = 500102
	prmUTMZone       uint32 = 500103
	prmHemisphere    uint32 = 500104
	prmXScale        uint32 = 500105
	prmYScale        uint32 = 500106
	prmXYRotation    uint32 = 500107
	prmAuxSphereType uint32 = 500108
	prmSys34Zone     uint32 = 500109
)

// precision is the semantic class of a parameter; it selects both the number
// of emitted decimals and the import-time angle handling.
type precision uint8

const (
	precComplex precision = iota
	precLng
	precLat
	precAzimuth
	precScale
	precLinear
	precCount
)

func (p precision) decimals() int {
	switch p {
	case precLng, precLat, precAzimuth:
		return 14
	case precScale:
		return 12
	case precLinear:
		return 3
	case precCount:
		return 0
	}
	return 12
}

func (p precision) angular() bool {
	return p == precLng || p == precLat || p == precAzimuth
}

var paramPrecision = map[uint32]precision{
	prmFalseEasting:        precLinear,
	prmFalseNorthing:       precLinear,
	prmEastingFalseOrigin:  precLinear,
	prmNorthingFalseOrigin: precLinear,
	prmScaleFactor:         precScale,
	prmScaleInitialLine:    precScale,
	prmScalePseudoParallel: precScale,
	prmXScale:              precScale,
	prmYScale:              precScale,
	prmCentralMeridian:     precLng,
	prmLngCenter:           precLng,
	prmLngFalseOrigin:      precLng,
	prmLngOrigin:           precLng,
	prmPoleLng:             precLng,
	prmLatOrigin:           precLat,
	prmLatCenter:           precLat,
	prmLatFalseOrigin:      precLat,
	prmStdParallel1:        precLat,
	prmStdParallel2:        precLat,
	prmPseudoParallel:      precLat,
	prmPoleLat:             precLat,
	prmAzimuth:             precAzimuth,
	prmRectifiedAngle:      precAzimuth,
	prmColatConeAxis:       precAzimuth,
	prmXYRotation:          precAzimuth,
	prmUTMZone:             precCount,
	prmHemisphere:          precCount,
	prmAuxSphereType:       precCount,
	prmSys34Zone:           precCount,
}

func precisionOf(id uint32) precision {
	if p, ok := paramPrecision[id]; ok {
		return p
	}
	return precComplex
}

package dse

// DataType tags the representation of a struct element, matching the
// original struct.h Type enum exactly (values are part of the wire format,
// encoded straight into STRUCT_ELEM command words).
type DataType uint8

const (
	TypeUint8  DataType = 0x00
	TypeUint16 DataType = 0x01
	TypeUint32 DataType = 0x02
	TypeUint64 DataType = 0x03
	TypeInt8   DataType = 0x04
	TypeInt16  DataType = 0x05
	TypeInt32  DataType = 0x06
	TypeInt64  DataType = 0x07
	TypeU88    DataType = 0x08
	TypeU1616  DataType = 0x09
	TypeU3232  DataType = 0x0A
	TypeS87    DataType = 0x0B
	TypeS1615  DataType = 0x0C
	TypeS3231  DataType = 0x0D
	TypeU08    DataType = 0x10
	TypeU016   DataType = 0x11
	TypeU032   DataType = 0x12
	TypeU064   DataType = 0x13
	TypeS07    DataType = 0x14
	TypeS015   DataType = 0x15
	TypeS031   DataType = 0x16
	TypeS063   DataType = 0x17
)

// sizeOf returns the byte width of a data type, or an error for a tag not in
// the catalogue above (mirrors the original's data_type_get_size, which
// rt_error(RTE_ABORT)s on an unknown type; here that becomes errBadDataType).
func (t DataType) sizeOf() (int, error) {
	switch t {
	case TypeUint8, TypeInt8, TypeU08, TypeS07:
		return 1, nil
	case TypeUint16, TypeInt16, TypeU88, TypeS87, TypeU016, TypeS015:
		return 2, nil
	case TypeUint32, TypeInt32, TypeU1616, TypeS1615, TypeU032, TypeS031:
		return 4, nil
	case TypeUint64, TypeInt64, TypeU3232, TypeS3231, TypeU064, TypeS063:
		return 8, nil
	default:
		return 0, errBadDataType
	}
}

// mask returns a value truncated to this type's byte width, the same
// "clear the most significant bits" discipline as struct_set_element_value.
func (t DataType) mask(value uint64) (uint64, error) {
	size, err := t.sizeOf()
	if err != nil {
		return 0, err
	}
	if size >= 8 {
		return value, nil
	}
	bits := uint(size) * 8
	return value & ((uint64(1) << bits) - 1), nil
}

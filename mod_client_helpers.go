package meshpbr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
)

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float2":
		return wgpu.VertexFormatFloat32x2
	case "float3":
		return wgpu.VertexFormatFloat32x3
	case "float4":
		return wgpu.VertexFormatFloat32x4
	default:
		panic("unsupported vertex layout format: " + name)
	}
}

// createVertexBufferLayout derives attributes from fields tagged
// `gekko:"layout" location:"N" format:"floatK"`.
func createVertexBufferLayout(vertexType any) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		panic("Vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	var offset uint64 = 0

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("gekko") {
			format := parseFormat(field.Tag.Get("format"))
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if nil != err {
				panic(err)
			}

			attributes = append(attributes, wgpu.VertexAttribute{
				ShaderLocation: uint32(location),
				Offset:         offset,
				Format:         format,
			})
		}

		// Add size of field to offset
		offset += uint64(field.Type.Size())
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}
}

func toBufferBytes(data any) []byte {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	buf := new(bytes.Buffer)
	readUniformsBytes(val, buf)
	return buf.Bytes()
}

// readUniformsBytes serializes structs, arrays and scalars little endian in
// field order. Layouts must already respect WGSL alignment.
func readUniformsBytes(field reflect.Value, buf *bytes.Buffer) {
	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			switch elem.Kind() {
			case reflect.Struct, reflect.Array, reflect.Slice:
				readUniformsBytes(elem, buf)
			default:
				if err := binary.Write(buf, binary.LittleEndian, elem.Interface()); err != nil {
					panic(fmt.Errorf("failed to write slice element: %w", err))
				}
			}
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			readUniformsBytes(field.Field(i), buf)
		}

	case reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			panic(fmt.Errorf("failed to write scalar field: %w", err))
		}

	default:
		panic(fmt.Errorf("unsupported uniform type: %v", field.Type()))
	}
}

func wgpuAddressMode(mode WrapMode) wgpu.AddressMode {
	switch mode {
	case WrapModeRepeat:
		return wgpu.AddressModeRepeat
	case WrapModeMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	case WrapModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	default:
		panic(fmt.Sprintf("Unknown wrap mode: %d", mode))
	}
}

func wgpuMagFilter(f MagFilter) wgpu.FilterMode {
	if f == MagFilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

// wgpuMinFilter splits a combined minification filter into the min and mipmap filters.
func wgpuMinFilter(f MinFilter) (wgpu.FilterMode, wgpu.MipmapFilterMode, bool) {
	switch f {
	case MinFilterNearest:
		return wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest, false
	case MinFilterLinear:
		return wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest, false
	case MinFilterNearestMipmapNearest:
		return wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest, true
	case MinFilterLinearMipmapNearest:
		return wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest, true
	case MinFilterNearestMipmapLinear:
		return wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear, true
	case MinFilterLinearMipmapLinear:
		return wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear, true
	default:
		panic(fmt.Sprintf("Unknown min filter: %d", f))
	}
}

func wgpuBytesPerPixel(format wgpu.TextureFormat) uint32 {
	switch format {
	case wgpu.TextureFormatR8Unorm, wgpu.TextureFormatR8Snorm,
		wgpu.TextureFormatR8Uint, wgpu.TextureFormatR8Sint:
		return 1
	case wgpu.TextureFormatRG8Unorm, wgpu.TextureFormatRG8Snorm,
		wgpu.TextureFormatRG8Uint, wgpu.TextureFormatRG8Sint,
		wgpu.TextureFormatR16Uint, wgpu.TextureFormatR16Sint, wgpu.TextureFormatR16Float:
		return 2
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureFormatRGBA8Snorm, wgpu.TextureFormatRGBA8Uint, wgpu.TextureFormatRGBA8Sint,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureFormatR32Float, wgpu.TextureFormatR32Uint, wgpu.TextureFormatR32Sint:
		return 4
	case wgpu.TextureFormatRGBA16Float, wgpu.TextureFormatRG32Float:
		return 8
	case wgpu.TextureFormatRGBA32Float:
		return 16
	}
	panic("Add missing texture format")
}

// surfaceIsSrgb reports whether the swapchain applies the sRGB transfer on write.
func surfaceIsSrgb(format wgpu.TextureFormat) bool {
	return format == wgpu.TextureFormatBGRA8UnormSrgb || format == wgpu.TextureFormatRGBA8UnormSrgb
}

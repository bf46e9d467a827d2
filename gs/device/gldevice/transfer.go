// This file is part of gsrender.
//
// gsrender is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gsrender is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gsrender.  If not, see <https://www.gnu.org/licenses/>.

package gldevice

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/jetsetilly/gsrender/gs/memory"
	"github.com/jetsetilly/gsrender/gs/shaders"
)

// barrier after a pass that writes the memory image. later passes may read
// memory with image loads, texel fetches or a texture download
const memoryBarrier = gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT | gl.TEXTURE_UPDATE_BARRIER_BIT

// HostToLocal implements the device.Device interface.
func (d *Device) HostToLocal(t memory.Transfer, data []byte) error {
	if err := t.Check(); err != nil {
		return err
	}
	n := t.PSM.TransferPixels(len(data))
	if n == 0 {
		return nil
	}

	h, err := d.transferProgram(t.PSM)
	if err != nil {
		return err
	}

	// the program reads the stream as 32 bit words
	if len(data)%4 != 0 {
		padded := make([]byte, (len(data)+3)&^3)
		copy(padded, data)
		data = padded
	}

	d.drawBound = false
	d.bindMemory()

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, d.xferData)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(data), gl.Ptr(data), gl.STREAM_DRAW)
	d.uniforms(shaders.XferParamsBinding, shaders.PackXferParams(t.Ptr, t.Width, t.X, t.Y, t.W, n))

	gl.UseProgram(h)
	gl.DispatchCompute(uint32((n+shaders.XferLocalSize-1)/shaders.XferLocalSize), 1, 1)
	gl.MemoryBarrier(memoryBarrier)

	return d.check("host to local")
}

// LocalToHost implements the device.Device interface. The whole of memory is
// downloaded and the transfer performed on the host copy.
func (d *Device) LocalToHost(t memory.Transfer) ([]byte, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	if err := d.ReadMemory(d.host); err != nil {
		return nil, err
	}
	return d.host.Download(t)
}

// ClutLoad implements the device.Device interface.
func (d *Device) ClutLoad(ld memory.ClutLoad) error {
	if err := ld.Check(); err != nil {
		return err
	}

	h, err := d.clutProgram(ld)
	if err != nil {
		return err
	}

	d.drawBound = false
	d.bindMemory()

	gl.BindImageTexture(shaders.ClutImageUnit, d.clut, 0, false, 0, gl.READ_WRITE, gl.R32UI)
	d.uniforms(shaders.ClutParamsBinding, shaders.PackClutParams(ld.Ptr, ld.Base(), ld.Size()))

	gl.UseProgram(h)
	gl.DispatchCompute(1, 1, 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	return d.check("clut load")
}

// ReadMemory implements the device.Device interface.
func (d *Device) ReadMemory(m *memory.Memory) error {
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.memory)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RED_INTEGER, gl.UNSIGNED_INT, gl.Ptr(m.Words()))
	d.drawBound = false
	return d.check("read memory")
}

// WriteMemory implements the device.Device interface.
func (d *Device) WriteMemory(m *memory.Memory) error {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.memory)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, memory.ImageWidth, memory.ImageHeight, gl.RED_INTEGER, gl.UNSIGNED_INT, gl.Ptr(m.Words()))
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT)
	d.drawBound = false
	return d.check("write memory")
}

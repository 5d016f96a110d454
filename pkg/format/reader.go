package format

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapFile represents a read-only memory-mapped file.
type MmapFile struct {
	path string
	data []byte
	size int64
}

// OpenMmap opens a file and maps it into memory.
func OpenMmap(path string) (*MmapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return &MmapFile{path: path, data: nil, size: 0}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &MmapFile{
		path: path,
		data: data,
		size: size,
	}, nil
}

// Close unmaps the file. It is safe to call more than once.
func (m *MmapFile) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// Data returns the raw memory-mapped bytes.
func (m *MmapFile) Data() []byte {
	return m.data
}

// Size returns the file size.
func (m *MmapFile) Size() int64 {
	return m.size
}

// Path returns the mapped file's path.
func (m *MmapFile) Path() string {
	return m.path
}

// File is a container decoded in place over a memory-mapped file. The index
// tensor is a view into the mapping, so nothing proportional to the voxel
// count is allocated.
//
// Thread Safety: File is safe for concurrent read access. Close should only be
// called once, after every user of Video has finished.
type File struct {
	mmap  *MmapFile
	video *Video
}

// OpenFile maps path and decodes it.
func OpenFile(path string) (*File, error) {
	mmap, err := OpenMmap(path)
	if err != nil {
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	video, err := Decode(mmap.Data())
	if err != nil {
		mmap.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &File{mmap: mmap, video: video}, nil
}

// Video returns the decoded container.
func (f *File) Video() *Video {
	return f.video
}

// Data returns the mapped bytes the video was decoded from.
func (f *File) Data() []byte {
	return f.mmap.Data()
}

// Size returns the file size.
func (f *File) Size() int64 {
	return f.mmap.Size()
}

// Close releases the mapping. The Video must not be used afterwards.
func (f *File) Close() error {
	return f.mmap.Close()
}

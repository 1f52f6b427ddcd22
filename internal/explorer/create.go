package explorer

import "os"

// CreateFile creates an empty file. It fails if anything already exists
// at the path.
func (s *Session) CreateFile(name string) (string, error) {
	if err := requireName(name, "file name"); err != nil {
		return "", err
	}
	p := s.resolve(name)

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fsError(err, "cannot create file", p)
	}
	if err := f.Close(); err != nil {
		return "", fsError(err, "cannot create file", p)
	}
	s.logger.Info("Created file", "path", p)
	return p, nil
}

// CreateDir creates a single directory with mode 0755.
func (s *Session) CreateDir(name string) (string, error) {
	if err := requireName(name, "directory name"); err != nil {
		return "", err
	}
	p := s.resolve(name)

	if err := s.fs.Mkdir(p, 0755); err != nil {
		return "", fsError(err, "cannot create directory", p)
	}
	s.logger.Info("Created directory", "path", p)
	return p, nil
}

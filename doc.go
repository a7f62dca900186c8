// Package siren streams graphs of polymorphic objects to and from archives.
//
// Every streamable type implements Object and is registered with the class registry under a stable name.
// An object describes its own fields by opening a Schema on the Stream it is given,
// and the same Stream method serves both saving and loading:
//
//	func (p *Point) Stream(s *siren.Stream) error {
//		schema, err := s.Item("example.Point", 1)
//		if err != nil {
//			return err
//		}
//		defer schema.End()
//
//		if err := schema.Data("x").Float64(&p.X); err != nil {
//			return err
//		}
//		if err := schema.Data("y").Float64(&p.Y); err != nil {
//			return err
//		}
//		return schema.End()
//	}
//
// The archive format is chosen by the Backend; see the binstream and xmlstream packages.
//
// Within one Stream, strings and blobs are written once and referenced afterwards,
// and objects held by an ObjRef are written once per shared instance, so that sharing survives a round trip.
// Each type is written with the version the saving code declared, and Item refuses to read any other version.
//
// A derived type streams its base first, through Schema.Base:
//
//	schema, err := s.Item("example.Particle", 2)
//	...
//	if err := p.Named.Stream(schema.Base()); err != nil {
//		return err
//	}
package siren

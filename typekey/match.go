package typekey

// Validate rejects keys that can never be resolved: unresolved type
// parameters anywhere in the descriptor, and collections without exactly one
// type argument.
func Validate(key BeanTypeKey) error {
	if key.Type.Unresolved() {
		return ErrInvalidKey.WithMsgf("key %s contains an unresolved type parameter", key).
			WithData("key", key.String())
	}
	if key.Type.Kind == KindCollection && len(key.Type.Args) != 1 {
		return ErrInvalidKey.WithMsgf("collection key %s must have exactly one type argument, got %d",
			key, len(key.Type.Args)).WithData("key", key.String())
	}
	return nil
}

// ElementKey unwraps an array or single-argument collection key.
// The discriminator is kept. ok is false for any other kind.
func ElementKey(key BeanTypeKey) (elem BeanTypeKey, ok bool, err error) {
	switch key.Type.Kind {
	case KindArray:
		if key.Type.Elem == nil {
			return BeanTypeKey{}, false, ErrInvalidKey.WithMsgf("array key %s has no element type", key)
		}
		return key.WithType(*key.Type.Elem), true, nil
	case KindCollection:
		if len(key.Type.Args) != 1 {
			return BeanTypeKey{}, false, ErrInvalidKey.WithMsgf(
				"collection key %s must have exactly one type argument, got %d", key, len(key.Type.Args)).
				WithData("key", key.String())
		}
		return key.WithType(key.Type.Args[0]), true, nil
	}
	return BeanTypeKey{}, false, nil
}

// Matches reports whether required is satisfied by one of provided.
// Direct structural equality wins; otherwise arrays and single-argument
// collections are satisfied by any provider of their element type.
func Matches(required BeanTypeKey, provided []BeanTypeKey) (bool, error) {
	for _, p := range provided {
		if required.Equal(p) {
			return true, nil
		}
	}
	elem, ok, err := ElementKey(required)
	if err != nil || !ok {
		return false, err
	}
	return Matches(elem, provided)
}

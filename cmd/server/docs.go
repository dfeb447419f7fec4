// Package main NoteShare Server API
//
//	@title						NoteShare API
//	@version					1.0
//	@description				Social note sharing backend with a credit-gated action pipeline
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Auth
//	@tag.description			Registration, login and token refresh
//
//	@tag.name					User
//	@tag.description			Profiles and avatars
//
//	@tag.name					Credits
//	@tag.description			Wallet balance and transaction history
//
//	@tag.name					Posts
//	@tag.description			Notes with optional attachments
//
//	@tag.name					Comments
//	@tag.description			Comments on notes
//
//	@tag.name					Interactions
//	@tag.description			Likes and bookmarks
//
//	@tag.name					Friends
//	@tag.description			Friend requests and friendships
//
//	@tag.name					Feed
//	@tag.description			Public, friends and inbox feeds
//
//	@tag.name					Shop
//	@tag.description			Profile banner shop
//
//	@tag.name					AI
//	@tag.description			Text generation
package main

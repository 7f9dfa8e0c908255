package handlers

import "github.com/gin-gonic/gin"

// Register mounts every API endpoint on g.
func (h *Handlers) Register(g gin.IRouter) {
	ch := g.Group("/challenges")
	ch.GET("", h.ListChallenges)
	ch.POST("", h.CreateChallenge)
	ch.GET("/favorites", h.ListFavorites)
	ch.GET("/:id", h.GetChallenge)
	ch.PATCH("/:id/save", h.SaveChallenge)
	ch.PATCH("/:id/unsave", h.UnsaveChallenge)
	ch.POST("/:id/favorite", h.ToggleFavorite)
	ch.GET("/:id/favorite-status", h.FavoriteStatus)
	ch.GET("/:id/status", h.GetStatus)
	ch.POST("/:id/status", h.UpdateStatus)
	ch.POST("/:id/like", h.ToggleLike)
	ch.POST("/:id/comments", h.AddComment)

	g.DELETE("/comments/:commentId", h.DeleteComment)
	g.POST("/completions/:id/rating", h.RateCompletion)

	fr := g.Group("/friends")
	fr.GET("/status/:a/:b", h.FriendStatus)
	fr.POST("/request", h.SendFriendRequest)
	fr.POST("/request/:id/accept", h.AcceptFriendRequest)
	fr.POST("/request/:id/reject", h.RejectFriendRequest)
	fr.DELETE("/:friendId", h.RemoveFriend)

	chats := g.Group("/chats")
	chats.POST("/direct", h.DirectChat)
	chats.GET("/:id/messages", h.ListMessages)
	chats.POST("/:id/messages", h.SendMessage)
	chats.POST("/:id/read", h.MarkChatRead)

	nt := g.Group("/notifications")
	nt.GET("/:userId", h.ListNotifications)
	nt.GET("/:userId/unread-count", h.UnreadCount)
	nt.POST("/:userId/read", h.MarkNotificationsRead)

	us := g.Group("/users")
	us.GET("", h.ListUsers)
	us.GET("/:id", h.GetUser)
	us.GET("/:id/stats", h.UserStats)
	us.GET("/:id/friends", h.ListFriends)
	us.GET("/:id/friend-requests", h.ListFriendRequests)
	us.GET("/:id/chats", h.ListChats)

	g.GET("/session", h.CurrentSession)
	g.POST("/session", h.Login)
	g.DELETE("/session", h.Logout)

	g.GET("/events", h.Events)
}
